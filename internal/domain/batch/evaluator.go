package batch

// Evaluate decides whether the user can continue an existing enrollment for
// the course on c or must pick a batch. An enrollment record matches when its
// ContentID equals the card's key for the layout; a match in an open batch
// continues, anything else picks a batch. No network call is involved.
func Evaluate(c Content, details CourseDetails) Evaluation {
	key := c.Key(details.Layout)
	eval := Evaluation{Route: RoutePickBatch, CourseID: key}
	if key == "" {
		return eval
	}

	for i := range details.EnrolledCourses {
		record := &details.EnrolledCourses[i]
		if record.ContentID != key {
			continue
		}
		eval.Record = record
		if record.Batch.Status.IsOpen() {
			eval.Route = RouteContinue
		}
		return eval
	}
	return eval
}
