package aggregate

import "time"

// Time-of-day buckets, by local hour.
const (
	BucketMorning   = "morning"   // 06-12
	BucketAfternoon = "afternoon" // 12-18
	BucketEvening   = "evening"   // 18-23
	BucketNight     = "night"     // 23-06
)

// TimeBuckets lists all buckets in report order.
var TimeBuckets = []string{BucketMorning, BucketAfternoon, BucketEvening, BucketNight}

// TimeBucket classifies an instant into its time-of-day bucket.
func TimeBucket(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 6 && h < 12:
		return BucketMorning
	case h >= 12 && h < 18:
		return BucketAfternoon
	case h >= 18 && h < 23:
		return BucketEvening
	default:
		return BucketNight
	}
}

// Distance bands from the venue, in kilometers.
const (
	BandNear = "0-2km"
	BandMid  = "2-5km"
	BandFar  = "5-10km"
	BandOut  = "10km+"
)

// DistanceBands lists all bands in report order, the unknown bucket
// last.
var DistanceBands = []string{BandNear, BandMid, BandFar, BandOut, SliceUnknown}

// DistanceBand classifies a distance. A nil distance is the explicit
// unknown band.
func DistanceBand(km *float64) string {
	switch {
	case km == nil:
		return SliceUnknown
	case *km < 2:
		return BandNear
	case *km < 5:
		return BandMid
	case *km < 10:
		return BandFar
	default:
		return BandOut
	}
}
