package collect

import (
	"encoding/json"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

func marshalIndent(obj interface{}) ([]byte, error) {
	b, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal object")
	}
	return b, nil
}

// setGVK stamps the group/version/kind on an object fetched through a typed
// client, which strips it. Dumps without apiVersion/kind are much harder to
// feed back into other tooling.
func setGVK(obj runtime.Object, gv schema.GroupVersion, kind string) {
	obj.GetObjectKind().SetGroupVersionKind(gv.WithKind(kind))
}
