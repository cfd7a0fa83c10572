// Package e2e runs ingestion and question answering end to end against a local index.
package e2e

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FactSheet is one corpus document. Codename is a phrase that appears in no other
// sheet, so a question naming it should retrieve this sheet.
type FactSheet struct {
	FileName string
	Codename string
	Content  string
}

// QueryCase is a question and the document that must be in its retrieved context.
type QueryCase struct {
	Question   string
	ExpectDoc  string
	Descriptor string
}

// Corpus holds fact sheets and the questions asked about them.
type Corpus struct {
	Sheets []FactSheet
	Cases  []QueryCase
}

var sheets = []struct {
	codename string
	body     string
}{
	{"zephyrine lattice", "The zephyrine lattice is a crystalline scaffold grown in orbit. Each zephyrine lattice panel weighs four kilograms."},
	{"obsidian heron", "Obsidian heron is the code name of the coastal survey drone. The obsidian heron flies for nine hours on one charge."},
	{"marigold ledger", "The marigold ledger records every grain shipment leaving the northern harbor. Marigold ledger entries are signed twice."},
	{"quartzwind turbine", "A quartzwind turbine spins on a magnetic bearing. Quartzwind turbine blades are replaced every decade."},
	{"saffron cipher", "Saffron cipher messages rotate their alphabet daily. The saffron cipher was retired after the treaty."},
	{"glacier murmur", "Glacier murmur describes the low hum recorded under the ice shelf. Glacier murmur peaks in late spring."},
	{"velvet anvil", "The velvet anvil is a forging press that shapes titanium without sparks. Velvet anvil presses run in sealed rooms."},
	{"cobalt meadow", "Cobalt meadow is an experimental farm where clover grows under blue lamps. Cobalt meadow harvests happen at night."},
	{"lantern tortoise", "Lantern tortoise robots inspect sewer tunnels slowly. Each lantern tortoise carries its own light."},
	{"amber cascade", "Amber cascade is the backup cooling loop of the reactor hall. Amber cascade valves open automatically above ninety degrees."},
	{"hollow comet", "Hollow comet was a stage play about miners on an asteroid. Hollow comet ran for three seasons."},
	{"tidal sparrow", "The tidal sparrow buoy measures wave height every minute. Tidal sparrow data feeds the harbor forecast."},
}

// BuildCorpus returns one fact sheet per codename and one question per sheet.
func BuildCorpus() *Corpus {
	c := &Corpus{}
	for i, s := range sheets {
		name := fmt.Sprintf("sheet-%02d.txt", i+1)
		c.Sheets = append(c.Sheets, FactSheet{FileName: name, Codename: s.codename, Content: s.body})
		c.Cases = append(c.Cases, QueryCase{
			Question:   s.codename,
			ExpectDoc:  name,
			Descriptor: "codename " + strings.ReplaceAll(s.codename, " ", "_"),
		})
	}
	return c
}

// WriteTo writes every sheet into dir and returns the file paths in corpus order.
func (c *Corpus) WriteTo(dir string) ([]string, error) {
	paths := make([]string, 0, len(c.Sheets))
	for _, s := range c.Sheets {
		p := filepath.Join(dir, s.FileName)
		if err := os.WriteFile(p, []byte(s.Content), 0644); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}
