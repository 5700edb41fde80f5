package variations

// deriveStatus composes the two decision tracks into the single lifecycle
// status. The client decision always wins over the internal disposition; a
// deferred disposition keeps the request in play wherever it already is in
// the submit lifecycle. Both tracks empty means the status follows the
// submit lifecycle.
func deriveStatus(submitted bool, disp Disposition, decision ClientDecision) VariationStatus {
	switch decision {
	case ClientApproved:
		return StatusApproved
	case ClientDeclined:
		return StatusDeclined
	}
	switch disp {
	case DispositionApprove:
		return StatusApproved
	case DispositionReject:
		return StatusDeclined
	}
	if submitted {
		return StatusSubmitted
	}
	return StatusPending
}
