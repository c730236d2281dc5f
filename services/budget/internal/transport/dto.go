package transport

type CreateCategoryRequest struct {
	Name   string `json:"name"`
	Budget int64  `json:"budget"`
	Emoji  string `json:"emoji"`
}

type PatchCategoryRequest struct {
	Name   *string `json:"name"`
	Budget *int64  `json:"budget"`
	Emoji  *string `json:"emoji"`
}

type CreateExpenseRequest struct {
	CategoryID  string `json:"category_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"` // YYYY-MM-DD
}

type PatchExpenseRequest struct {
	CategoryID  *string `json:"category_id"`
	Amount      *int64  `json:"amount"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

type CreateIncomeRequest struct {
	Source      string `json:"source"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

type PatchIncomeRequest struct {
	Source      *string `json:"source"`
	Amount      *int64  `json:"amount"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

type PutCapitalRequest struct {
	Amount int64 `json:"amount"`
	Month  int   `json:"month"`
	Year   int   `json:"year"`
}

type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Trends holds month-over-month changes formatted as "+8.2%" / "-3.1%";
// a zero previous value reports "+0.0%".
type Trends struct {
	Income    string `json:"income"`
	Expenses  string `json:"expenses"`
	Balance   string `json:"balance"`
	Capital   string `json:"capital"`
	Inflation string `json:"inflation"`
}

type CategorySummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Emoji       string  `json:"emoji,omitempty"`
	Amount      int64   `json:"amount"`
	Budget      int64   `json:"budget"`
	PercentUsed float64 `json:"percent_used"`
}

type SummaryResponse struct {
	Period            Period            `json:"period"`
	Income            int64             `json:"income"`
	Expenses          int64             `json:"expenses"`
	Balance           int64             `json:"balance"`
	Capital           int64             `json:"capital"`
	PersonalInflation float64           `json:"personal_inflation"`
	Trends            Trends            `json:"trends"`
	Categories        []CategorySummary `json:"categories"`
}
