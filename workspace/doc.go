// Package workspace owns the on-disk scratch area shared by the crew:
//
//   - TaskStore: the ordered task list persisted as a JSON array in
//     <workspace>/_active_tasks.json (single writer, atomic rewrites)
//   - file access relative to the project directory
//   - Go code staging (<workspace>/<function>_temp.go), validation and
//     finalization into target files
//   - a Go test environment (<workspace>/testenv) and test execution with a timeout
package workspace
