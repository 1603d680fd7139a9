package fee

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		monthlyFee float64
		paidAmount float64
		want       Status
	}{
		{name: "nothing owed", monthlyFee: 0, paidAmount: 0, want: StatusPaid},
		{name: "nothing owed with payment", monthlyFee: 0, paidAmount: 50, want: StatusPaid},
		{name: "paid in full", monthlyFee: 1000, paidAmount: 1000, want: StatusPaid},
		{name: "overpaid", monthlyFee: 1000, paidAmount: 1500, want: StatusPaid},
		{name: "partial", monthlyFee: 1000, paidAmount: 400, want: StatusPartial},
		{name: "tiny payment", monthlyFee: 1000, paidAmount: 0.01, want: StatusPartial},
		{name: "unpaid", monthlyFee: 1000, paidAmount: 0, want: StatusUnpaid},
		{name: "negative fee coerced", monthlyFee: -100, paidAmount: 0, want: StatusPaid},
		{name: "negative payment coerced", monthlyFee: 1000, paidAmount: -50, want: StatusUnpaid},
		{name: "NaN fee coerced", monthlyFee: math.NaN(), paidAmount: 0, want: StatusPaid},
		{name: "NaN payment coerced", monthlyFee: 1000, paidAmount: math.NaN(), want: StatusUnpaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.monthlyFee, tt.paidAmount))

			// classification is idempotent: re-deriving from the same inputs
			// yields the same status
			assert.Equal(t, tt.want, Classify(tt.monthlyFee, tt.paidAmount))
		})
	}
}

// a record's status never regresses as payment grows for a fixed fee
func TestClassify_monotonic(t *testing.T) {
	order := map[Status]int{StatusUnpaid: 0, StatusPartial: 1, StatusPaid: 2}

	monthlyFee := 1000.0
	prev := Classify(monthlyFee, 0)
	for paid := 0.0; paid <= 1200; paid += 50 {
		curr := Classify(monthlyFee, paid)
		assert.GreaterOrEqual(t, order[curr], order[prev], "status regressed at paid=%v", paid)
		prev = curr
	}
}

func TestComputeBalance(t *testing.T) {
	tests := []struct {
		name         string
		monthlyFee   float64
		carryForward float64
		paidAmount   float64
		want         float64
	}{
		{name: "paid in full", monthlyFee: 1000, carryForward: 0, paidAmount: 1000, want: 0},
		{name: "carry plus shortfall", monthlyFee: 1000, carryForward: 500, paidAmount: 200, want: 1300},
		{name: "unpaid with carry", monthlyFee: 1000, carryForward: 250, paidAmount: 0, want: 1250},
		{name: "overpayment clamped", monthlyFee: 1000, carryForward: 0, paidAmount: 1500, want: 0},
		{name: "zero everything", monthlyFee: 0, carryForward: 0, paidAmount: 0, want: 0},
		{name: "negative inputs coerced", monthlyFee: -1000, carryForward: -1, paidAmount: -5, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeBalance(tt.monthlyFee, tt.carryForward, tt.paidAmount)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestSummarize(t *testing.T) {
	fees := []Fee{
		{MonthlyFee: 1000, PaidAmount: 1000}, // paid
		{MonthlyFee: 1000, PaidAmount: 400},  // partial
		{MonthlyFee: 1000, PaidAmount: 0},    // unpaid
		{MonthlyFee: 500, PaidAmount: 500},   // paid
		{MonthlyFee: 800, PaidAmount: 100},   // partial
	}

	s := Summarize(fees)

	assert.Equal(t, 1500.0, s.PaidAmount)
	assert.Equal(t, 2, s.PaidCount)
	assert.Equal(t, 500.0, s.PartialAmount)
	assert.Equal(t, 2, s.PartialCount)
	// partial shortfalls (600 + 700) plus the fully unpaid 1000
	assert.Equal(t, 2300.0, s.OverdueAmount)
	assert.Equal(t, 3, s.OverdueCount)
}

func TestSummarize_orderIndependent(t *testing.T) {
	fees := []Fee{
		{MonthlyFee: 1000, PaidAmount: 1000},
		{MonthlyFee: 1000, PaidAmount: 400},
		{MonthlyFee: 1000, PaidAmount: 0},
		{MonthlyFee: 750, PaidAmount: 750},
		{MonthlyFee: 1200, PaidAmount: 600},
		{MonthlyFee: 300, PaidAmount: 299.99},
	}
	want := Summarize(fees)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]Fee, len(fees))
		copy(shuffled, fees)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, Summarize(shuffled))
	}
}

func TestSummarize_empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
	assert.Equal(t, Summary{}, Summarize([]Fee{}))
}

func TestPreviousPeriod(t *testing.T) {
	tests := []struct {
		name                 string
		month, year          int
		wantMonth, wantYear  int
	}{
		{name: "mid-year", month: 7, year: 2024, wantMonth: 6, wantYear: 2024},
		{name: "february", month: 2, year: 2024, wantMonth: 1, wantYear: 2024},
		{name: "january wraps", month: 1, year: 2024, wantMonth: 12, wantYear: 2023},
		{name: "december", month: 12, year: 2024, wantMonth: 11, wantYear: 2024},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, y := PreviousPeriod(tt.month, tt.year)
			assert.Equal(t, tt.wantMonth, m)
			assert.Equal(t, tt.wantYear, y)
		})
	}
}

func TestCarryForward(t *testing.T) {
	tests := []struct {
		name string
		prev *Fee
		want float64
	}{
		{name: "no previous record", prev: nil, want: 0},
		{name: "previous fully paid", prev: &Fee{MonthlyFee: 1000, PaidAmount: 1000, BalanceDue: 0}, want: 0},
		{name: "previous partial", prev: &Fee{MonthlyFee: 1000, PaidAmount: 400, BalanceDue: 600}, want: 600},
		{name: "previous unpaid", prev: &Fee{MonthlyFee: 1000, PaidAmount: 0, BalanceDue: 1000}, want: 1000},
		{name: "negative balance coerced", prev: &Fee{MonthlyFee: 1000, PaidAmount: 400, BalanceDue: -5}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CarryForward(tt.prev))
		})
	}
}

// two months of arrears: 2000 owed in total, 800 paid in the first month, the
// shortfall carried into the second
func TestCarryForward_chained(t *testing.T) {
	jan := Fee{
		StudentID:  "s1",
		Month:      1,
		Year:       2024,
		MonthlyFee: 1000,
		PaidAmount: 800,
	}
	jan.BalanceDue = ComputeBalance(jan.MonthlyFee, 0, jan.PaidAmount)
	jan.Status = jan.Classify()

	assert.Equal(t, 200.0, jan.BalanceDue)
	assert.Equal(t, StatusPartial, jan.Status)

	carry := CarryForward(&jan)
	feb := Fee{
		StudentID:  "s1",
		Month:      2,
		Year:       2024,
		MonthlyFee: 1000,
		PaidAmount: 0,
	}
	feb.BalanceDue = ComputeBalance(feb.MonthlyFee, carry, feb.PaidAmount)
	feb.Status = feb.Classify()

	assert.Equal(t, 1200.0, feb.BalanceDue)
	// the carried amount never changes the period status
	assert.Equal(t, StatusUnpaid, feb.Status)
}
