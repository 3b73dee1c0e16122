// Package domain models daily temperature extremes and the waves they form.
//
// # Input Data
//
// Daily tables come from the aggregation stage that averages Daymet grid cells
// over a geography (counties, tracts, ZIP code tabulation areas). Each row is
//
//	<geography id>,date,value
//	25025,20200101,-1.73
//
// where the first column name varies with the geography and dates are
// YYYYMMDD strings. There is exactly one row per location per day.
//
// Quantile tables carry per-year, per-location percentiles of the same
// series, one column per percentile ("pctile01", "pctile99", ...).
//
// # Extremes
//
// Two passes run per output file:
//
//	cold: daily maximum temperature below a low percentile (tmax < pctileCC)
//	hot:  daily minimum temperature above a high percentile (tmin > pctileHH)
//
// Comparisons are strict; a value equal to its cutoff is not extreme. A
// location/year without a cutoff never produces an extreme day.
//
// # Waves
//
// A wave is a maximal run of back-to-back calendar days on which one location
// was extreme with one label. Waves are numbered in the order they close,
// starting at 1, and the hot pass continues numbering where the cold pass
// stopped. Every output row carries the wave id, the wave length and the
// 1-based index of the day inside the wave. A wave of length 1 is a singleton.
//
// The [Detector] only sees days that are already sorted by (location, date);
// see [SortDays] and [SortedDays].
package domain
