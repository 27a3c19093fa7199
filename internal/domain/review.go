package domain

// Review is a rated product review.
type Review struct {
	Meta
	ProductID string `json:"productId"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName,omitempty"`
	Rating    int    `json:"rating"`
	Text      string `json:"text,omitempty"`
}

// Comment is a free-text product comment.
type Comment struct {
	Meta
	ProductID string `json:"productId"`
	UserID    string `json:"userId"`
	Text      string `json:"text"`
}

// CreateReviewRequest is the body for POST /v1/products/{id}/reviews.
type CreateReviewRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
	Rating   int    `json:"rating"`
	Text     string `json:"text,omitempty"`
}

// ReviewSummary aggregates a product's reviews.
type ReviewSummary struct {
	ProductID     string   `json:"productId"`
	Count         int      `json:"count"`
	AverageRating float64  `json:"averageRating"`
	Reviews       []Review `json:"reviews"`
}
