package reddit

// Post is the subset of Reddit's post JSON payload (a "Link" thing's
// "data" object) the aggregator consumes, grounded on
// original_source/core/aggregators/reddit/types.py.
type Post struct {
	ID                  string               `json:"id"`
	Title               string               `json:"title"`
	Selftext            string               `json:"selftext"`
	URL                 string               `json:"url"`
	Permalink           string               `json:"permalink"`
	CreatedUTC          float64              `json:"created_utc"`
	Author              string               `json:"author"`
	Score               int                  `json:"score"`
	NumComments         int                  `json:"num_comments"`
	Thumbnail           string               `json:"thumbnail"`
	IsSelf              bool                 `json:"is_self"`
	IsVideo             bool                 `json:"is_video"`
	IsGallery           bool                 `json:"is_gallery"`
	Preview             *postPreview         `json:"preview,omitempty"`
	MediaMetadata       map[string]mediaMeta `json:"media_metadata,omitempty"`
	GalleryData         *galleryData         `json:"gallery_data,omitempty"`
	CrosspostParentList []map[string]any     `json:"crosspost_parent_list,omitempty"`
}

type postPreview struct {
	Images []previewImage `json:"images"`
}

type previewImage struct {
	Source   imageSource             `json:"source"`
	Variants map[string]imageVariant `json:"variants"`
}

type imageSource struct {
	URL string `json:"url"`
}

type imageVariant struct {
	Source imageSource `json:"source"`
}

type mediaMeta struct {
	E string            `json:"e"`
	S map[string]string `json:"s"`
}

type galleryData struct {
	Items []galleryItem `json:"items"`
}

type galleryItem struct {
	MediaID string `json:"media_id"`
	Caption string `json:"caption"`
}

// listingResponse is Reddit's generic Listing wrapper.
type listingResponse struct {
	Data struct {
		Children []struct {
			Data Post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Comment is the subset of a Reddit comment's "data" object consumed here.
type Comment struct {
	Body      string `json:"body"`
	Author    string `json:"author"`
	Score     int    `json:"score"`
	Permalink string `json:"permalink"`
}

// subredditAbout is the relevant subset of /r/<sub>/about's response.
type subredditAbout struct {
	Data struct {
		IconImg       string `json:"icon_img"`
		CommunityIcon string `json:"community_icon"`
	} `json:"data"`
}
