package helpdesk

// incrementalResponse is the incremental ticket export payload. Tickets are
// ordered by ascending feed position; end_time is the cursor to resume from.
type incrementalResponse struct {
	Tickets     []apiTicket `json:"tickets"`
	EndTime     int64       `json:"end_time"`
	EndOfStream bool        `json:"end_of_stream"`
	NextPage    string      `json:"next_page"`
}

type apiTicket struct {
	ID          int64   `json:"id"`
	CreatedAt   string  `json:"created_at"`
	RequesterID int64   `json:"requester_id"`
	Subject     string  `json:"subject"`
	Status      string  `json:"status"`
	Via         *apiVia `json:"via"`
}

type apiVia struct {
	Channel string `json:"channel"`
}

type userResponse struct {
	User apiUser `json:"user"`
}

type apiUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type commentsResponse struct {
	Comments []apiComment `json:"comments"`
}

type apiComment struct {
	ID        int64  `json:"id"`
	AuthorID  int64  `json:"author_id"`
	Public    bool   `json:"public"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}
