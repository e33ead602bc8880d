// Package lib provides a Go SDK for driving a deployment backend
// programmatically.
//
// It exposes the same operations as the deployboard CLI: reading the stage
// catalog, submitting tasks, following their progress and aborting or removing
// them. Applications use it instead of shelling out to the binary.
//
// # Quick Start
//
//	client, err := lib.New(lib.Config{BackendURL: "http://127.0.0.1:8080"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Submit the backend default stages.
//	task, err := client.SubmitTask(ctx, lib.SubmitTaskOpts{})
//
//	// Follow it.
//	detail, err := client.GetTask(ctx, task.ID)
//	fmt.Printf("%s %d%%: %s\n", detail.Task.Status, detail.Percent, detail.Headline)
//
// # Task references
//
// Methods that receive a task reference accept the full ID or any unique
// prefix of it, like the 8 character short ID shown by the CLI.
//
// # Errors
//
// Errors can be checked with [errors.Is] against [ErrNotFound], [ErrNotValid],
// [ErrCatalogUnavailable] and [ErrNoStageSelected].
package lib
