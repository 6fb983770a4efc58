package youtube

// thumbnail is one entry of a YouTube thumbnails map (default/medium/high/maxres).
type thumbnail struct {
	URL string `json:"url"`
}

type thumbnails struct {
	Default thumbnail `json:"default"`
	Medium  thumbnail `json:"medium"`
	High    thumbnail `json:"high"`
	Maxres  thumbnail `json:"maxres"`
}

type channelSnippet struct {
	Title      string     `json:"title"`
	CustomURL  string     `json:"customUrl"`
	Thumbnails thumbnails `json:"thumbnails"`
}

type relatedPlaylists struct {
	Uploads string `json:"uploads"`
}

type channelContentDetails struct {
	RelatedPlaylists relatedPlaylists `json:"relatedPlaylists"`
}

type channel struct {
	ID             string                `json:"id"`
	Snippet        channelSnippet        `json:"snippet"`
	ContentDetails channelContentDetails `json:"contentDetails"`
}

type channelListResponse struct {
	Items []channel `json:"items"`
}

type videoSnippet struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PublishedAt string     `json:"publishedAt"`
	Thumbnails  thumbnails `json:"thumbnails"`
}

type video struct {
	ID      string       `json:"id"`
	Snippet videoSnippet `json:"snippet"`
}

type videoListResponse struct {
	Items []video `json:"items"`
}

type playlistItemContentDetails struct {
	VideoID string `json:"videoId"`
}

type playlistItem struct {
	ContentDetails playlistItemContentDetails `json:"contentDetails"`
}

type playlistItemsResponse struct {
	Items         []playlistItem `json:"items"`
	NextPageToken string         `json:"nextPageToken"`
}

type searchIDRef struct {
	ChannelID string `json:"channelId"`
	VideoID   string `json:"videoId"`
}

type searchSnippet struct {
	Title     string `json:"title"`
	CustomURL string `json:"customUrl"`
}

type searchItem struct {
	ID      searchIDRef   `json:"id"`
	Snippet searchSnippet `json:"snippet"`
}

type searchResponse struct {
	Items         []searchItem `json:"items"`
	NextPageToken string       `json:"nextPageToken"`
}

type commentSnippet struct {
	AuthorDisplayName string `json:"authorDisplayName"`
	TextDisplay       string `json:"textDisplay"`
}

type topLevelComment struct {
	Snippet commentSnippet `json:"snippet"`
}

type commentThreadSnippet struct {
	TopLevelComment topLevelComment `json:"topLevelComment"`
}

type commentThread struct {
	Snippet commentThreadSnippet `json:"snippet"`
}

type commentThreadsResponse struct {
	Items         []commentThread `json:"items"`
	NextPageToken string          `json:"nextPageToken"`
}

// Comment is a flattened top-level video comment.
type Comment struct {
	Author string
	Text   string
}
