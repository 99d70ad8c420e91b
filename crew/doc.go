// Package crew assembles the five cooperating agents of the coding
// assistant: the Orchestrator plans and coordinates, the Coder stages code,
// the Tester writes and runs tests, the Database agent maintains the
// knowledge base and the Research agent searches the web.
//
// Every specialist can only hand control back to the Orchestrator; the
// Orchestrator can hand off to every specialist and ends the run with
// finish_workflow.
package crew
