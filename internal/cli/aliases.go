package cli

import "github.com/odysseus0/rssant/internal/model"

type OutputFormat = model.OutputFormat
type Feed = model.Feed
type Story = model.Story
type ImportResult = model.ImportResult
type ImportReport = model.ImportReport

const (
	OutputTable = model.OutputTable
	OutputJSON  = model.OutputJSON
	OutputWide  = model.OutputWide
)
