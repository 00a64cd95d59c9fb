package ccl

// Merge combines a parent and child document into one deny-dominant
// document: parent and child denies both carry forward unchanged, child
// permits take precedence in the statement order (though evaluation
// itself resolves conflicts by specificity regardless of order), parent
// and child obligations both carry forward, and same-action limits merge
// to the lower count. Periods are not normalized to a common unit; an
// equal-count collision keeps whichever entry was inserted first (the
// parent's).
func Merge(parent, child *Document) *Document {
	var statements []Statement

	for _, d := range parent.Denies {
		statements = append(statements, d)
	}
	for _, d := range child.Denies {
		statements = append(statements, d)
	}
	for _, p := range child.Permits {
		statements = append(statements, p)
	}
	for _, p := range parent.Permits {
		statements = append(statements, p)
	}
	for _, o := range parent.Obligations {
		statements = append(statements, o)
	}
	for _, o := range child.Obligations {
		statements = append(statements, o)
	}

	limitsByAction := map[string]*LimitStatement{}
	var limitOrder []string
	addLimit := func(l *LimitStatement) {
		existing, ok := limitsByAction[l.Action]
		if !ok {
			limitsByAction[l.Action] = l
			limitOrder = append(limitOrder, l.Action)
			return
		}
		if l.Count < existing.Count {
			limitsByAction[l.Action] = l
		}
	}
	for _, l := range parent.Limits {
		addLimit(l)
	}
	for _, l := range child.Limits {
		addLimit(l)
	}
	for _, action := range limitOrder {
		statements = append(statements, limitsByAction[action])
	}

	return buildDocument(statements)
}
