package main

import (
	"github.com/kubesnap/kubesnap/cmd/kubesnap/cli"
	_ "k8s.io/client-go/plugin/pkg/client/auth"
)

func main() {
	cli.InitAndExecute()
}
