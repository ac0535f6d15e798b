package domain

// Favorite is one bookmark entry as returned by the bookmarks service.
type Favorite struct {
	UserID     string `json:"userid"`
	Kind       string `json:"kind"`
	ListName   string `json:"listname"`
	Identifier string `json:"identifier"`
	UpdateDate string `json:"updatedate"`
	Media      string `json:"media"`
	Title      string `json:"title"`
	Comments   string `json:"comments"`
	MediaType  string `json:"mediatype"`
	Media2     string `json:"media2"`
}

// RawFavorites is the bookmarks payload.
type RawFavorites struct {
	Favorites []Favorite `json:"favorites"`
}

// CachedFavorites is the cache record for favorites. Owner is the username the
// list was fetched for; a record owned by someone else is never served.
type CachedFavorites struct {
	Owner     string       `json:"owner"`
	Favorites RawFavorites `json:"favorites"`
}

// UserFavorites is a user's favorites list keyed by their item identity.
type UserFavorites struct {
	ItemName  string     `json:"itemname"`
	UserKey   string     `json:"userid"`
	Favorites []Favorite `json:"favorites"`
}

// NewUserFavorites pairs a favorites payload with the identity that owns it.
func NewUserFavorites(identity *Identity, raw RawFavorites) *UserFavorites {
	favorites := make([]Favorite, len(raw.Favorites))
	copy(favorites, raw.Favorites)
	return &UserFavorites{
		ItemName:  identity.ItemName,
		UserKey:   identity.UserKey,
		Favorites: favorites,
	}
}
