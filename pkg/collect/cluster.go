package collect

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Nodes dumps the cluster's node list, the one cluster-scoped capture in a
// run. Node capacity and conditions are the usual first stop when a
// namespace misbehaves.
func Nodes(ctx context.Context, client kubernetes.Interface) ([]byte, error) {
	nodes, err := client.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list nodes")
	}

	setGVK(nodes, corev1.SchemeGroupVersion, "NodeList")
	for i := range nodes.Items {
		setGVK(&nodes.Items[i], corev1.SchemeGroupVersion, "Node")
	}

	return marshalIndent(nodes)
}

// Events dumps the newest tail of the namespace's events, ordered by when
// each event was last observed. Events older than the tail window are
// dropped.
func Events(ctx context.Context, client kubernetes.Interface, namespace string, tail int) ([]byte, error) {
	events, err := client.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list events")
	}

	sort.SliceStable(events.Items, func(i, j int) bool {
		ti, tj := lastObserved(events.Items[i]), lastObserved(events.Items[j])
		return ti.Before(&tj)
	})

	if tail > 0 && len(events.Items) > tail {
		events.Items = events.Items[len(events.Items)-tail:]
	}

	setGVK(events, corev1.SchemeGroupVersion, "EventList")
	for i := range events.Items {
		setGVK(&events.Items[i], corev1.SchemeGroupVersion, "Event")
	}

	return marshalIndent(events)
}

// lastObserved picks the best available "last seen" time for an event. Not
// every event source fills in LastTimestamp.
func lastObserved(event corev1.Event) metav1.Time {
	if !event.LastTimestamp.IsZero() {
		return event.LastTimestamp
	}
	if !event.EventTime.IsZero() {
		return metav1.Time{Time: event.EventTime.Time}
	}
	return event.CreationTimestamp
}

// PersistentVolumeClaims dumps the namespace's PVC list.
func PersistentVolumeClaims(ctx context.Context, client kubernetes.Interface, namespace string) ([]byte, error) {
	pvcs, err := client.CoreV1().PersistentVolumeClaims(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list persistent volume claims")
	}

	setGVK(pvcs, corev1.SchemeGroupVersion, "PersistentVolumeClaimList")
	for i := range pvcs.Items {
		setGVK(&pvcs.Items[i], corev1.SchemeGroupVersion, "PersistentVolumeClaim")
	}

	return marshalIndent(pvcs)
}

// StatefulSets dumps the namespace's stateful set list.
func StatefulSets(ctx context.Context, client kubernetes.Interface, namespace string) ([]byte, error) {
	statefulsets, err := client.AppsV1().StatefulSets(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list statefulsets")
	}

	setGVK(statefulsets, appsv1.SchemeGroupVersion, "StatefulSetList")
	for i := range statefulsets.Items {
		setGVK(&statefulsets.Items[i], appsv1.SchemeGroupVersion, "StatefulSet")
	}

	return marshalIndent(statefulsets)
}

// Deployments dumps the namespace's deployment list.
func Deployments(ctx context.Context, client kubernetes.Interface, namespace string) ([]byte, error) {
	deployments, err := client.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list deployments")
	}

	setGVK(deployments, appsv1.SchemeGroupVersion, "DeploymentList")
	for i := range deployments.Items {
		setGVK(&deployments.Items[i], appsv1.SchemeGroupVersion, "Deployment")
	}

	return marshalIndent(deployments)
}
