// forestwatch is the command line client for the deforestation-monitoring
// platform.  It can run the pipeline directly against the geospatial
// catalog or talk to a running API server.
package main

import "github.com/aflahkuncoro/deforestation-monitoring/internal/interfaces/cli"

func main() {
	cli.Execute()
}
