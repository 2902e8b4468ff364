package model

// BoardMember ties a user to a board with a role. Membership has no
// natural forward/inverse diff, so mutations replace the full object.
type BoardMember struct {
	BoardID         string `json:"boardId"`
	UserID          string `json:"userId"`
	Roles           string `json:"roles"`
	MinimumRole     string `json:"minimumRole"`
	SchemeAdmin     bool   `json:"schemeAdmin"`
	SchemeEditor    bool   `json:"schemeEditor"`
	SchemeCommenter bool   `json:"schemeCommenter"`
	SchemeViewer    bool   `json:"schemeViewer"`
	Synthetic       bool   `json:"synthetic"`
}

// User is the subset of the user record the core needs for the local
// users cache and the person-valued grouping keys.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	CreateAt int64  `json:"create_at"`
	UpdateAt int64  `json:"update_at"`
	DeleteAt int64  `json:"delete_at"`
	IsBot    bool   `json:"is_bot"`
	IsGuest  bool   `json:"is_guest"`
}

// Category is a sidebar grouping of boards. Category mutations are
// pass-through client calls with no undo involvement.
type Category struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	UserID    string   `json:"userID"`
	TeamID    string   `json:"teamID"`
	BoardIDs  []string `json:"boardIDs,omitempty"`
	Collapsed bool     `json:"collapsed"`
	SortOrder int      `json:"sortOrder"`
	Type      string   `json:"type"`
}
