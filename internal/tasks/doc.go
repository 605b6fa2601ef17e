// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks queues sheet conversions and runs them in the background.
//
// # Key Types
//
//   - Task: one sheet conversion with status, row progress and cancellation
//   - Queue: tasks plus bounded history and completion notifications
//   - Runner: executes queued tasks through export.Start with a concurrency
//     limit, relays progress and records outcomes to a Recorder
//   - TaskStatus: Queued, Running, Complete, Failed, Canceled
//
// # Usage
//
//	queue := tasks.NewQueue(50)
//	runner := tasks.NewRunner(queue)
//	runner.SetRecorder(history)
//	runner.Start()
//	defer runner.Stop()
//
//	queue.Add(tasks.NewTask("book.xlsx", export.Job{
//	    Sheet:       sheet,
//	    Options:     opts,
//	    Destination: "book.csv",
//	}))
//
//	for n := range queue.Notifications() {
//	    fmt.Println(n.Description, n.Status, n.Rows)
//	}
package tasks
