package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

type mempoolBlockDelta struct {
	Added []struct {
		TxID string  `json:"txid"`
		Rate float64 `json:"rate"`
	} `json:"added"`
	Removed []string `json:"removed"`
	Changed []struct {
		TxID string  `json:"txid"`
		Rate float64 `json:"rate"`
	} `json:"changed"`
}

var deltasCmd = &cobra.Command{
	Use:   "deltas",
	Short: "Print the deltas between the two most recent projections.",
	Run:   deltasRun,
}

func init() {
	rootCmd.AddCommand(deltasCmd)
}

func deltasRun(cmd *cobra.Command, args []string) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/fees/mempool-blocks/deltas", url))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var deltas []mempoolBlockDelta
	if err := json.NewDecoder(resp.Body).Decode(&deltas); err != nil {
		log.Fatal(err)
	}

	for i, delta := range deltas {
		fmt.Printf("block %d: added[%d] removed[%d] changed[%d]\n",
			i, len(delta.Added), len(delta.Removed), len(delta.Changed))
	}
}
