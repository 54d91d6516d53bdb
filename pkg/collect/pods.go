package collect

import (
	"bytes"
	"context"
	"io"

	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Pods lists the pods in the namespace and returns both the typed list, for
// fan-out, and its JSON dump, for the list artifact.
func Pods(ctx context.Context, client kubernetes.Interface, namespace string) (*corev1.PodList, []byte, error) {
	pods, err := client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to list pods")
	}

	setGVK(pods, corev1.SchemeGroupVersion, "PodList")
	for i := range pods.Items {
		setGVK(&pods.Items[i], corev1.SchemeGroupVersion, "Pod")
	}

	b, err := marshalIndent(pods)
	if err != nil {
		return nil, nil, err
	}

	return pods, b, nil
}

// DescribePod fetches one pod and renders it as an indented JSON dump.
func DescribePod(ctx context.Context, client kubernetes.Interface, namespace string, name string) ([]byte, error) {
	pod, err := client.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get pod %s", name)
	}

	setGVK(pod, corev1.SchemeGroupVersion, "Pod")
	return marshalIndent(pod)
}

// PodLogs fetches the logs of a pod's default container, bounded by
// tailLines. With previous set, the logs of the prior instance of the
// container are fetched instead.
func PodLogs(ctx context.Context, client kubernetes.Interface, namespace string, name string, tailLines int64, previous bool) ([]byte, error) {
	podLogOpts := corev1.PodLogOptions{
		Previous: previous,
	}
	if tailLines > 0 {
		podLogOpts.TailLines = &tailLines
	}

	req := client.CoreV1().Pods(namespace).GetLogs(name, &podLogOpts)
	logs, err := req.Stream(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stream logs for pod %s", name)
	}
	defer logs.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, logs); err != nil {
		return nil, errors.Wrapf(err, "failed to read logs for pod %s", name)
	}

	return buf.Bytes(), nil
}

// NeedsPreviousLogs reports whether a previous-logs capture should be issued
// for the pod: any restart of the pod's first container means the prior
// instance's logs may hold the reason, no matter how long ago the restart
// happened.
func NeedsPreviousLogs(pod corev1.Pod) bool {
	if len(pod.Status.ContainerStatuses) == 0 {
		return false
	}
	return pod.Status.ContainerStatuses[0].RestartCount > 0
}
