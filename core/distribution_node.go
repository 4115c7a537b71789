package core

// DistributionNode accumulates one region's share of every tick's generated
// energy. Balances are never reset during a session; the dashboard reads
// them as running totals.
type DistributionNode struct {
	Region     string
	BalanceMWh float64

	// shareOf is the number of regions splitting each tick's output.
	// Fixed at construction; the region set cannot change mid-session.
	shareOf int
}

// NewDistributionNode returns a node for the named region. regionCount must
// be positive; engine construction validates the region set before any node
// exists.
func NewDistributionNode(region string, regionCount int) *DistributionNode {
	return &DistributionNode{Region: region, shareOf: regionCount}
}

// BalanceAndDistribute credits this node with an equal share of the given
// tick energy and returns the new balance.
func (n *DistributionNode) BalanceAndDistribute(amountMWh float64) float64 {
	n.BalanceMWh += amountMWh / float64(n.shareOf)
	return n.BalanceMWh
}
