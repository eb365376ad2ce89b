package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "List enrolled people",
	Args:  cobra.NoArgs,
	RunE:  runPeople,
}

func init() {
	rootCmd.AddCommand(peopleCmd)
}

func runPeople(cmd *cobra.Command, args []string) error {
	service, err := bootstrap()
	if err != nil {
		return err
	}
	defer service.Close()

	people, err := service.People()
	if err != nil {
		return err
	}
	if len(people) == 0 {
		fmt.Println("Nobody is enrolled yet")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tNAME\tSAMPLES\tENROLLED")
	for _, p := range people {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", p.Label, service.NameFor(p.Label), p.Samples, time.Unix(p.Created, 0).Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
