package history

// BuildTrend annotates runs, given oldest first, with the change in option
// and entry point counts since the previous successful run of the same role.
// Failed runs carry no delta and do not become the baseline.
func BuildTrend(runs []Run) []TrendPoint {
	points := make([]TrendPoint, 0, len(runs))
	last := make(map[string]Run)
	for _, run := range runs {
		point := TrendPoint{Run: run}
		prev, seen := last[run.Role]
		switch {
		case run.Status == StatusFailed:
		case !seen:
			point.First = true
			last[run.Role] = run
		default:
			point.DeltaOptions = run.Options - prev.Options
			point.DeltaEntryPoints = run.EntryPoints - prev.EntryPoints
			last[run.Role] = run
		}
		points = append(points, point)
	}
	return points
}
