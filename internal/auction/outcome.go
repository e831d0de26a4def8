package auction

// OutcomeKind labels the result of a bidding action.
type OutcomeKind string

const (
	// OutcomeBidPlaced means the bid was accepted and the team now leads.
	OutcomeBidPlaced OutcomeKind = "bid_placed"
	// OutcomeDropped means the team on turn left the rotation voluntarily.
	OutcomeDropped OutcomeKind = "dropped"
	// OutcomeAutoDropped means the team on turn could not afford the next
	// bid and was dropped automatically.
	OutcomeAutoDropped OutcomeKind = "auto_dropped"
	// OutcomeSold means the host sold the player to the leader.
	OutcomeSold OutcomeKind = "sold"
	// OutcomeAutoSold means a drop left one active team with a standing
	// bid, selling the player automatically.
	OutcomeAutoSold OutcomeKind = "auto_sold"
	// OutcomeUnsold means the host marked the player unsold.
	OutcomeUnsold OutcomeKind = "unsold"
	// OutcomeAutoUnsold means the last active team dropped with no bid,
	// marking the player unsold automatically.
	OutcomeAutoUnsold OutcomeKind = "auto_unsold"
)

// Outcome describes the state transition a bidding action produced,
// including the automatic sale/unsold special cases a drop can cascade
// into. Unaffordable and capacity rejections surface here or as sentinel
// errors, never as silent inert state.
type Outcome struct {
	Kind       OutcomeKind
	PlayerID   string
	PlayerName string
	// TeamID/TeamName identify the leader for bid and sale outcomes.
	TeamID   string
	TeamName string
	Price    int
	// TeamRemaining is the leader's budget after a sale.
	TeamRemaining int
	// DroppedTeamID/DroppedTeamName are set when the action removed a
	// team from the rotation, including drops that cascaded into an
	// automatic sale or unsold result.
	DroppedTeamID   string
	DroppedTeamName string
	// UnsoldRound mirrors the player's re-auction marker for sale and
	// unsold outcomes.
	UnsoldRound bool
}
