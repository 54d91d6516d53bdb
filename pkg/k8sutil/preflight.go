package k8sutil

import (
	"context"

	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/klog/v2"
)

// CheckAPIServer verifies that the cluster API can be reached at all. This
// distinguishes an unusable client configuration from any later per-query
// failure.
func CheckAPIServer(client kubernetes.Interface) error {
	info, err := client.Discovery().ServerVersion()
	if err != nil {
		return errors.Wrap(err, "failed to reach the Kubernetes API server")
	}

	klog.V(2).Infof("API server version %s", info.GitVersion)
	return nil
}

// CheckNamespaceExists verifies the target namespace exists in the cluster.
func CheckNamespaceExists(ctx context.Context, client kubernetes.Interface, namespace string) error {
	if _, err := client.CoreV1().Namespaces().Get(ctx, namespace, metav1.GetOptions{}); err != nil {
		return errors.Wrapf(err, "namespace %q was not found in the cluster", namespace)
	}
	return nil
}
