package dto

// CourseRevenue is one aggregated revenue row. Rows are keyed by course id;
// the name is resolved for display only, so two courses sharing a title stay
// distinct.
type CourseRevenue struct {
	CourseID uint    `json:"course_id"`
	Name     string  `json:"name"`
	Total    float64 `json:"total"`
	Sales    int64   `json:"sales"`
}

// InstructorAnalyticsResponse summarises revenue for one instructor.
// TotalRevenue always equals the sum of Data totals and TotalSales the sum
// of Data sales counts.
type InstructorAnalyticsResponse struct {
	TotalRevenue float64         `json:"total_revenue"`
	TotalSales   int64           `json:"total_sales"`
	Data         []CourseRevenue `json:"data"`
	CacheHit     bool            `json:"-"`
}
