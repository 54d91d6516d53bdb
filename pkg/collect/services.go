package collect

import (
	"context"

	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Services lists the services in the namespace and returns the typed list
// alongside its JSON dump.
func Services(ctx context.Context, client kubernetes.Interface, namespace string) (*corev1.ServiceList, []byte, error) {
	services, err := client.CoreV1().Services(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to list services")
	}

	setGVK(services, corev1.SchemeGroupVersion, "ServiceList")
	for i := range services.Items {
		setGVK(&services.Items[i], corev1.SchemeGroupVersion, "Service")
	}

	b, err := marshalIndent(services)
	if err != nil {
		return nil, nil, err
	}

	return services, b, nil
}

// DescribeService fetches one service and renders it as an indented JSON dump.
func DescribeService(ctx context.Context, client kubernetes.Interface, namespace string, name string) ([]byte, error) {
	service, err := client.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get service %s", name)
	}

	setGVK(service, corev1.SchemeGroupVersion, "Service")
	return marshalIndent(service)
}
