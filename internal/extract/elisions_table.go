package extract

import (
	_ "embed"
	"encoding/json"
)

//go:embed elisions.json
var elisionsJSON []byte

// elisionTable is the curated list of OCR elisions, loaded once at
// package init from configuration rather than compiled into code:
// adding an entry means editing elisions.json, not this package.
var elisionTable = loadElisionTable()

func loadElisionTable() map[string]string {
	var table map[string]string
	if err := json.Unmarshal(elisionsJSON, &table); err != nil {
		panic("extract: invalid elisions.json: " + err.Error())
	}
	return table
}
