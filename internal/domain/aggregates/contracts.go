package aggregates

// WriteTxOwnership says who opens the transaction around a write.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate: every write method runs in its own transaction.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy limits which reads an aggregate exposes.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped exposes the reads a read-merge-write cycle
	// needs and nothing broader.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
)

// Contract is the self-description every aggregate reports.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

type Aggregate interface {
	Contract() Contract
}

func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}
