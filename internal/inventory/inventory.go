// Package inventory loads the device list for a run.
package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/andrej220/netaudit/pkg/config/configstore"
	"github.com/andrej220/netaudit/pkg/config/filestore"
	dm "github.com/andrej220/netaudit/pkg/shared-models"
	"github.com/go-playground/validator/v10"
)

// File is the on-disk inventory layout:
//
//	devices:
//	  - hostname: core-sw1
//	    conn_info:
//	      device_type: cisco_ios
//	      host: 10.0.0.1
//	      username: admin
//	      password: secret
type File struct {
	Devices []dm.Device `yaml:"devices" validate:"dive"`
}

var validate = validator.New()

func init() {
	validate.RegisterStructValidation(validateDevice, dm.Device{})
}

// validateDevice requires a login and restricts device_type to IOS-like
// platforms, whose command syntax the tasks rely on.
func validateDevice(sl validator.StructLevel) {
	dev := sl.Current().Interface().(dm.Device)
	if strings.TrimSpace(dev.Param(dm.ConnUsername)) == "" {
		sl.ReportError(dev.ConnInfo, "ConnInfo", "conn_info", "username", "")
	}
	if dt := dev.Param(dm.ConnDeviceType); dt != "" && !strings.HasPrefix(dt, "cisco_") {
		sl.ReportError(dev.ConnInfo, "ConnInfo", "conn_info", "device_type", dt)
	}
}

// Load reads devices from the YAML file at path.
func Load(path string) ([]dm.Device, error) {
	return LoadFrom(filestore.New(path))
}

// LoadFrom reads devices from src. An empty source or an empty device list
// yields no devices and no error.
func LoadFrom(src configstore.Loader) ([]dm.Device, error) {
	var f File
	if err := src.Load(&f); err != nil {
		if errors.Is(err, configstore.ErrEmpty) {
			return []dm.Device{}, nil
		}
		return nil, fmt.Errorf("load inventory: %w", err)
	}
	if err := Validate(f.Devices); err != nil {
		return nil, err
	}
	if f.Devices == nil {
		return []dm.Device{}, nil
	}
	return f.Devices, nil
}

// Validate checks every device and rejects duplicate hostnames.
func Validate(devices []dm.Device) error {
	if err := validate.Struct(File{Devices: devices}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("invalid inventory: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid inventory: %w", err)
	}

	seen := make(map[string]int, len(devices))
	for i, dev := range devices {
		if j, ok := seen[dev.Hostname]; ok {
			return fmt.Errorf("invalid inventory: devices[%d] and devices[%d] share hostname %q", j, i, dev.Hostname)
		}
		seen[dev.Hostname] = i
	}
	return nil
}

func describe(fe validator.FieldError) string {
	ns := strings.TrimPrefix(fe.Namespace(), "File.")
	switch fe.Tag() {
	case "required":
		return ns + " is required"
	case "username":
		return ns + ".username is required"
	case "device_type":
		return fmt.Sprintf("%s.device_type %q is not supported", ns, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", ns, fe.Tag())
	}
}
