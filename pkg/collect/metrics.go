package collect

import (
	"context"

	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"
	metricsv1beta1 "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsclient "k8s.io/metrics/pkg/client/clientset/versioned"
)

// MetricsAvailable probes the metrics API with a single lightweight query.
// Clusters without metrics-server installed answer with a NotFound or
// service-unavailable error; either way the resource usage captures are
// skipped for the whole run rather than attempted and failed one by one.
func MetricsAvailable(ctx context.Context, client metricsclient.Interface) bool {
	_, err := client.MetricsV1beta1().NodeMetricses().List(ctx, metav1.ListOptions{Limit: 1})
	if err != nil {
		klog.V(1).Infof("Metrics API did not respond: %v", err)
		return false
	}
	return true
}

// NodeUsage dumps current resource usage for every node.
func NodeUsage(ctx context.Context, client metricsclient.Interface) ([]byte, error) {
	nodeMetrics, err := client.MetricsV1beta1().NodeMetricses().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list node metrics")
	}

	setGVK(nodeMetrics, metricsv1beta1.SchemeGroupVersion, "NodeMetricsList")
	return marshalIndent(nodeMetrics)
}

// PodUsage dumps current resource usage for the pods in the namespace.
func PodUsage(ctx context.Context, client metricsclient.Interface, namespace string) ([]byte, error) {
	podMetrics, err := client.MetricsV1beta1().PodMetricses(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pod metrics")
	}

	setGVK(podMetrics, metricsv1beta1.SchemeGroupVersion, "PodMetricsList")
	return marshalIndent(podMetrics)
}
