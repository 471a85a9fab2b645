package forms

import "time"

type QuestionPerformance struct {
	Question       string  `json:"question"`
	CompletionRate float64 `json:"completionRate"`
}

type UserRetention struct {
	Day1  float64 `json:"day1"`
	Day7  float64 `json:"day7"`
	Day30 float64 `json:"day30"`
}

// FormAnalytics is derived data: recomputed or served from the analytics cache, never a source of truth.
type FormAnalytics struct {
	TotalSubmissions       int                   `json:"totalSubmissions"`
	CompletionRate         float64               `json:"completionRate"`
	AverageTimeToComplete  float64               `json:"averageTimeToComplete"`
	TopPerformingQuestions []QuestionPerformance `json:"topPerformingQuestions"`
	UserRetention          UserRetention         `json:"userRetention"`
	Insights               []string              `json:"insights"`
}

// SubmissionRecord is one submission as handed to analysis and to the model prompt.
type SubmissionRecord struct {
	ID             string         `json:"id"`
	Data           SubmissionData `json:"data"`
	CompletionTime *float64       `json:"completionTime,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// AnalysisInput is the "form data" bundle analysed by the AI service.
type AnalysisInput struct {
	Form        GeneratedForm      `json:"form"`
	Submissions []SubmissionRecord `json:"submissions"`
}

type FormActivity struct {
	Title       string `json:"title"`
	Submissions int    `json:"submissions"`
}

// AggregatedStats backs the dashboard overview across all of a user's forms.
type AggregatedStats struct {
	TotalForms            int           `json:"totalForms"`
	TotalSubmissions      int           `json:"totalSubmissions"`
	OverallCompletionRate float64       `json:"overallCompletionRate"`
	AverageTimeToComplete float64       `json:"averageTimeToComplete"`
	MostActiveForm        *FormActivity `json:"mostActiveForm"`
	LeastActiveForm       *FormActivity `json:"leastActiveForm"`
}
