// Package toolkit exposes the workspace (files, staged Go code, the test
// module and the task list) as tools the crew agents can call.
//
// Every tool answers with a JSON object carrying a "status" field of
// "success" or "error" (test runs use "passed", "failed" or "error") and a
// human readable "message". Expected failures such as syntax errors or a
// missing task list are reported in that object rather than as Go errors so
// the model can react to them.
package toolkit
