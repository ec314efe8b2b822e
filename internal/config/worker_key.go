package config

type WorkerKeyStruct struct {
	PersistStatsQueue      string
	PersistStatsDeadLetter string
}

var WorkerKey = &WorkerKeyStruct{
	PersistStatsQueue:      "persist_stats_queue",
	PersistStatsDeadLetter: "persist_stats_dlq",
}
