package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
)

type mempoolBlock struct {
	BlockSize  int64     `json:"blockSize"`
	BlockVSize float64   `json:"blockVSize"`
	NTx        int       `json:"nTx"`
	TotalFees  int64     `json:"totalFees"`
	MedianFee  float64   `json:"medianFee"`
	FeeRange   []float64 `json:"feeRange"`
}

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Print the projected mempool blocks.",
	Run:   blocksRun,
}

func init() {
	rootCmd.AddCommand(blocksCmd)
}

func blocksRun(cmd *cobra.Command, args []string) {
	resp, err := http.Get(fmt.Sprintf("%s/v1/fees/mempool-blocks", url))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var mempoolBlocks []mempoolBlock
	if err := json.NewDecoder(resp.Body).Decode(&mempoolBlocks); err != nil {
		log.Fatal(err)
	}

	for i, block := range mempoolBlocks {
		fmt.Printf("block %d: txs[%d] vsize[%.0f] fees[%d] median[%.2f]\n",
			i, block.NTx, block.BlockVSize, block.TotalFees, block.MedianFee)
	}
}
