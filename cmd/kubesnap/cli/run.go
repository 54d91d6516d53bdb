package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"k8s.io/client-go/kubernetes"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"

	"github.com/kubesnap/kubesnap/pkg/k8sutil"
	"github.com/kubesnap/kubesnap/pkg/lbhealth"
	"github.com/kubesnap/kubesnap/pkg/snapshot"
	"github.com/kubesnap/kubesnap/pkg/version"
)

func runSnapshot(v *viper.Viper) error {
	restConfig, err := k8sutil.GetRESTConfig()
	if err != nil {
		return errors.Wrap(err, "failed to resolve kubernetes client configuration")
	}
	restConfig.UserAgent = version.GetUserAgent()

	kubeClient, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return errors.Wrap(err, "failed to create kubernetes client")
	}

	clients := snapshot.Clients{
		Kube:          kubeClient,
		LoadBalancers: lbhealth.NewAWSSource(),
	}

	// A metrics client that cannot be constructed just means the usage
	// captures are skipped; the availability probe handles the rest.
	if metricsClient, err := metricsclient.NewForConfig(restConfig); err == nil {
		clients.Metrics = metricsClient
	}

	opts := snapshot.OptionsFromViper(v)

	summary, err := snapshot.Run(context.Background(), clients, opts)
	if err != nil {
		return err
	}

	yellow := color.New(color.FgYellow)
	for _, o := range summary.Failed() {
		yellow.Printf("skipped %s: %v\n", o.Label, o.Err)
	}
	for _, c := range summary.SkippedCapabilities {
		yellow.Printf("unavailable: %s\n", c)
	}

	failed := len(summary.Failed())
	captured := len(summary.Outcomes) - failed
	msg := fmt.Sprintf("snapshot written to %s (%d captures", summary.BundlePath, captured)
	if failed > 0 {
		msg += fmt.Sprintf(", %d recorded as failed", failed)
	}
	color.New(color.FgGreen).Println(msg + ")")

	return nil
}
