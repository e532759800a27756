package api

// Route constants for the HTTP surface over package mixstate. Every
// endpoint here maps directly onto one spec §4.6 transition or read
// accessor; this package never carries protocol logic of its own.
const (
	PingEndpoint = "/ping"

	VoteIDParam   = "voteId"
	VotesEndpoint = "/votes"
	VoteEndpoint  = VotesEndpoint + "/{" + VoteIDParam + "}"

	KeySharesEndpoint     = VoteEndpoint + "/shares"
	CombineSharesEndpoint = VoteEndpoint + "/shares/combine"

	BallotsEndpoint = VoteEndpoint + "/ballots"
	PhaseEndpoint   = VoteEndpoint + "/phase"

	TopicParam        = "topic"
	RoundParam        = "round"
	BucketEndpoint    = VoteEndpoint + "/topics/{" + TopicParam + "}/buckets/{" + RoundParam + "}"
	ShuffleEndpoint   = VoteEndpoint + "/topics/{" + TopicParam + "}/shuffle"
	DecSharesEndpoint = VoteEndpoint + "/topics/{" + TopicParam + "}/shares"
	TallyEndpoint     = VoteEndpoint + "/topics/{" + TopicParam + "}/tally"
)
