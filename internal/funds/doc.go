// Package funds resolves fund selections into fund directories and loads the
// per-fund and shared inputs a report is built from.
//
// Every fund lives in its own directory below data/funds and provides
// holdings.csv and history.csv. The intro (Word document) and disclaimer
// (Markdown) in data/common are shared by all funds of a run.
package funds
