package dto

// RankingDTO - строка рейтинга роли
type RankingDTO struct {
	Rank        int     `json:"rank"`
	UserID      uint    `json:"userId"`
	Nickname    string  `json:"nickname"`
	Role        string  `json:"role"`
	RoleCode    string  `json:"roleCode"`
	Score       int64   `json:"score"`
	TotalCases  int64   `json:"totalCases"`
	SuccessRate float64 `json:"successRate"` // проценты, один знак после запятой
}
