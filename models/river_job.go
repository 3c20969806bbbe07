package models

// run one full test run job
type TestRunArgs struct {
	TestRunId string `json:"test_run_id"`
}

func (TestRunArgs) Kind() string { return "test_run" }
