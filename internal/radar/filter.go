package radar

import "math"

// FilterStage is admission control executed before scoring. A candidate
// failing any rule is dropped and counted; it never reaches the scoring
// engine.
type FilterStage struct{}

// Admit applies the admission rules and returns the rejection reason for
// the first rule that fails.
func (FilterStage) Admit(c Candidate, s ScanSettings) (bool, string) {
	if !s.allowsAlertType(c.AlertType) {
		return false, "alert type not requested"
	}
	if c.PremiumValue < s.MinPremium {
		return false, "premium below minimum"
	}
	if c.DaysToExpiry > s.MaxTimeToExpiry {
		return false, "expiry too far out"
	}
	if !s.allowsSector(c.Sector) {
		return false, "sector not in allow-list"
	}

	switch c.Source {
	case SourceUnusualVolume:
		if c.VolumeRatio <= 2 {
			return false, "volume ratio not unusual"
		}
	case SourceMomentum:
		if math.Abs(c.MomentumScore) <= 0.5 {
			return false, "momentum below threshold"
		}
	}

	return true, ""
}
