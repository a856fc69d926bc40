package core

// DetectKind picks the field set for a batch. A non-nil override always wins;
// otherwise the batch is collocations only when the headers name a
// collocation column.
func DetectKind(headers []string, override *bool) Kind {
	if override != nil {
		if *override {
			return KindCollocation
		}
		return KindStandard
	}
	for _, h := range NormalizeHeaders(headers) {
		if h == FieldCollocation {
			return KindCollocation
		}
	}
	return KindStandard
}

// Bool returns a pointer to b, for use as a kind override.
func Bool(b bool) *bool {
	return &b
}
