package ports

// MapPort is the map widget the dashboard drives. Implementations must not call back into the
// navigation controller synchronously.
type MapPort interface {
	// Reset clears any highlighted feature
	Reset()

	// ResetColours removes party colouring from every feature
	ResetColours()

	// MapLeadingConstituencyResults colours every constituency by its leading party
	MapLeadingConstituencyResults()

	// MapStrengthOfParty colours constituencies by the given party's vote share
	MapStrengthOfParty(partySlug string)

	// SelectBySlug highlights one constituency
	SelectBySlug(constituencySlug string)
}

// ClickSource delivers map feature clicks. Every registered callback receives the clicked
// feature's display name (a constituency name).
type ClickSource interface {
	OnClick(cb func(featureName string))
}

// HistoryPort records a new browser history entry without triggering route dispatch
type HistoryPort interface {
	PushState(url string)
}
