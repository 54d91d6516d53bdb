package collect

import (
	"context"

	"github.com/pkg/errors"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/yaml"
)

// Ingresses lists the ingresses in the namespace and returns the typed list
// alongside its JSON dump.
func Ingresses(ctx context.Context, client kubernetes.Interface, namespace string) (*networkingv1.IngressList, []byte, error) {
	ingresses, err := client.NetworkingV1().Ingresses(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to list ingresses")
	}

	setGVK(ingresses, networkingv1.SchemeGroupVersion, "IngressList")
	for i := range ingresses.Items {
		setGVK(&ingresses.Items[i], networkingv1.SchemeGroupVersion, "Ingress")
	}

	b, err := marshalIndent(ingresses)
	if err != nil {
		return nil, nil, err
	}

	return ingresses, b, nil
}

// DescribeIngress fetches one ingress and renders it as an indented JSON dump.
func DescribeIngress(ctx context.Context, client kubernetes.Interface, namespace string, name string) ([]byte, error) {
	ingress, err := client.NetworkingV1().Ingresses(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get ingress %s", name)
	}

	setGVK(ingress, networkingv1.SchemeGroupVersion, "Ingress")
	return marshalIndent(ingress)
}

// IngressManifest fetches one ingress and renders its full manifest as YAML,
// the form most useful for re-applying or diffing against source control.
func IngressManifest(ctx context.Context, client kubernetes.Interface, namespace string, name string) ([]byte, error) {
	ingress, err := client.NetworkingV1().Ingresses(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get ingress %s", name)
	}

	setGVK(ingress, networkingv1.SchemeGroupVersion, "Ingress")

	b, err := yaml.Marshal(ingress)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal ingress %s", name)
	}

	return b, nil
}
