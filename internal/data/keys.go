package data

// Keyspace holds the Redis key names for one deployment.
type Keyspace struct {
	Records    string // hash: record id -> JSON
	Jobs       string // hash: job id -> JSON
	Results    string // hash: job id -> PNG bytes
	Pending    string // list: LPUSH in, BLMOVE RIGHT out
	Processing string // list: in-flight ids
	Leases     string // hash: in-flight id -> deadline in unix millis
}

// NewKeyspace returns the key layout with prefix prepended to every name.
func NewKeyspace(prefix string) Keyspace {
	return Keyspace{
		Records:    prefix + "space_launches",
		Jobs:       prefix + "jobs",
		Results:    prefix + "results",
		Pending:    prefix + "hot_queue",
		Processing: prefix + "processing_queue",
		Leases:     prefix + "processing_leases",
	}
}
