package water

// Calculator derives hydration targets from body weight.
type Calculator struct {
	OuncesPerLb float64
	Sessions    int
	CupOunces   float64
}

// DefaultCalculator uses the half-ounce-per-pound rule of thumb split
// across three daily sessions, with 8oz cups.
func DefaultCalculator() Calculator {
	return Calculator{OuncesPerLb: 0.5, Sessions: 3, CupOunces: 8.0}
}

// DailyRequirement is the daily water goal in ounces for a given weight.
func (c Calculator) DailyRequirement(weightInLbs float64) float64 {
	if weightInLbs < 0 {
		return 0
	}
	return weightInLbs * c.OuncesPerLb
}

// SessionOunces is one session's portion of the daily goal.
func (c Calculator) SessionOunces(weightInLbs float64) float64 {
	if c.Sessions <= 0 {
		return 0
	}
	return c.DailyRequirement(weightInLbs) / float64(c.Sessions)
}

// RemainingCups rounds the outstanding goal up to whole cups for progress
// messages. Never negative.
func (c Calculator) RemainingCups(goalOunces, loggedOunces float64) int {
	remaining := goalOunces - loggedOunces
	if remaining <= 0 || c.CupOunces <= 0 {
		return 0
	}
	cups := int(remaining / c.CupOunces)
	if remaining > float64(cups)*c.CupOunces {
		cups++
	}
	return cups
}

// TotalCups is the daily goal expressed in cups, rounded to nearest.
func (c Calculator) TotalCups(weightInLbs float64) int {
	if c.CupOunces <= 0 {
		return 0
	}
	return int(c.DailyRequirement(weightInLbs)/c.CupOunces + 0.5)
}
