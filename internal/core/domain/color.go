package domain

import "sort"

// BucketColors groups detected colors into the histogram shape: hue buckets
// holding the distinct saturation values beneath them, and additionally the
// distinct lightness values per saturation when threeLevel is set. Buckets
// and values are sorted ascending.
func BucketColors(colors []HSL, threeLevel bool) []ColorBucket {
	byHue := map[float64]map[float64]map[float64]bool{}
	for _, c := range colors {
		if byHue[c.Hue] == nil {
			byHue[c.Hue] = map[float64]map[float64]bool{}
		}
		if byHue[c.Hue][c.Saturation] == nil {
			byHue[c.Hue][c.Saturation] = map[float64]bool{}
		}
		byHue[c.Hue][c.Saturation][c.Lightness] = true
	}

	hues := make([]float64, 0, len(byHue))
	for hue := range byHue {
		hues = append(hues, hue)
	}
	sort.Float64s(hues)

	buckets := make([]ColorBucket, 0, len(hues))
	for _, hue := range hues {
		saturations := make([]float64, 0, len(byHue[hue]))
		for sat := range byHue[hue] {
			saturations = append(saturations, sat)
		}
		sort.Float64s(saturations)

		bucket := ColorBucket{Hue: hue}
		for _, sat := range saturations {
			sb := SaturationBucket{Saturation: sat}
			if threeLevel {
				for l := range byHue[hue][sat] {
					sb.Lightness = append(sb.Lightness, l)
				}
				sort.Float64s(sb.Lightness)
			}
			bucket.Saturations = append(bucket.Saturations, sb)
		}
		buckets = append(buckets, bucket)
	}
	return buckets
}
