// Package webui exposes the grid WebUI methods as typed Go calls. Each method
// checks its arguments, declares the response schema, calls the service
// through api.Client and projects the validated response into a record.
package webui

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcncl/gridcall/internal/api"
	"github.com/mcncl/gridcall/internal/errors"
	"github.com/mcncl/gridcall/internal/models"
)

// Remote method names.
const (
	MethodOnlineStatus      = "OnlineStatus"
	MethodCheckIfUserExists = "CheckIfUserExists"
	MethodTextureSize       = "SizeOfHTTPGetTextureImage"
	MethodGridInfo          = "get_grid_info"
	MethodGetGridUserInfo   = "GetGridUserInfo"
	MethodGetRegions        = "GetRegions"
	MethodGetGroup          = "GetGroup"
	MethodGetParcel         = "GetParcel"
	MethodGroupAsNewsSource = "GroupAsNewsSource"
)

// Service wraps an api.Client with the grid's methods.
type Service struct {
	client   *api.Client
	gridInfo *GridInfoCache
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithGridInfoCache shares a grid info cache between services.
func WithGridInfoCache(c *GridInfoCache) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.gridInfo = c
		}
	}
}

// NewService creates a Service. Without WithGridInfoCache the service gets a
// cache of its own.
func NewService(client *api.Client, opts ...ServiceOption) *Service {
	s := &Service{client: client, gridInfo: NewGridInfoCache()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnlineStatus reports whether the grid is online and accepting logins.
func (s *Service) OnlineStatus(ctx context.Context) (OnlineStatus, error) {
	res, err := s.client.CallObject(ctx, MethodOnlineStatus, true, nil, onlineStatusSchema)
	if err != nil {
		return OnlineStatus{}, err
	}
	return OnlineStatus{
		Online:       boolean(res, "Online"),
		LoginEnabled: boolean(res, "LoginEnabled"),
	}, nil
}

// CheckIfUserExists reports whether an account with the given name exists.
func (s *Service) CheckIfUserExists(ctx context.Context, name string) (bool, error) {
	res, err := s.client.CallObject(ctx, MethodCheckIfUserExists, true, models.Object{"Name": name}, checkUserExistsSchema)
	if err != nil {
		return false, err
	}
	return boolean(res, "Verified"), nil
}

// GridTextureSize returns the size in bytes of a texture without downloading it.
func (s *Service) GridTextureSize(ctx context.Context, textureID string) (int64, error) {
	if !IsUUID(textureID) {
		return 0, errors.NewArgumentError(fmt.Sprintf("texture UUID %q is not valid", textureID), nil)
	}
	res, err := s.client.CallObject(ctx, MethodTextureSize, true, models.Object{"Texture": textureID}, textureSizeSchema)
	if err != nil {
		return 0, err
	}
	return integer(res, "Size"), nil
}

// GetGridUserInfo returns the presence record of a user.
func (s *Service) GetGridUserInfo(ctx context.Context, userID string) (GridUserInfo, error) {
	if !IsUUID(userID) {
		return GridUserInfo{}, errors.NewArgumentError(fmt.Sprintf("user UUID %q is not valid", userID), nil)
	}
	res, err := s.client.CallObject(ctx, MethodGetGridUserInfo, true, models.Object{"UUID": userID}, gridUserInfoSchema)
	if err != nil {
		return GridUserInfo{}, err
	}
	return gridUserInfoFrom(res), nil
}

// GetGroup looks a group up by UUID, or by name when nameOrUUID is not a
// UUID. It returns nil when no such group exists.
func (s *Service) GetGroup(ctx context.Context, nameOrUUID string) (*GroupRecord, error) {
	nameOrUUID = strings.TrimSpace(nameOrUUID)
	if nameOrUUID == "" {
		return nil, errors.NewArgumentError("group name or UUID is empty", nil)
	}

	args := models.Object{"Name": nameOrUUID}
	if IsUUID(nameOrUUID) {
		args = models.Object{"UUID": nameOrUUID}
	}

	res, err := s.client.CallObject(ctx, MethodGetGroup, true, args, groupSchema)
	if err != nil {
		return nil, err
	}
	group, ok := models.AsObject(res["Group"])
	if !ok {
		return nil, nil
	}
	return groupRecordFrom(group), nil
}

// GroupAsNewsSource marks a group as a news source, or unmarks it when use is
// false. The service answers true or fails.
func (s *Service) GroupAsNewsSource(ctx context.Context, groupID string, use bool) (bool, error) {
	if !IsUUID(groupID) {
		return false, errors.NewArgumentError(fmt.Sprintf("group UUID %q is not valid", groupID), nil)
	}
	res, err := s.client.CallObject(ctx, MethodGroupAsNewsSource, true, models.Object{"Group": groupID, "Use": use}, newsSourceSchema)
	if err != nil {
		return false, err
	}
	return boolean(res, "Verified"), nil
}

// GetParcel returns the parcel with the given info UUID.
func (s *Service) GetParcel(ctx context.Context, parcelID string) (Parcel, error) {
	if !IsUUID(parcelID) {
		return Parcel{}, errors.NewArgumentError(fmt.Sprintf("parcel UUID %q is not valid", parcelID), nil)
	}
	return s.getParcel(ctx, models.Object{"ParcelInfoUUID": parcelID})
}

// GetParcelByName returns the parcel called name in a region. An empty
// scopeID means the nil UUID.
func (s *Service) GetParcelByName(ctx context.Context, name, regionID, scopeID string) (Parcel, error) {
	name = strings.TrimSpace(name)
	if scopeID == "" {
		scopeID = NilUUID
	}
	switch {
	case name == "":
		return Parcel{}, errors.NewArgumentError("parcel name is empty", nil)
	case !IsUUID(regionID):
		return Parcel{}, errors.NewArgumentError(fmt.Sprintf("region UUID %q is not valid", regionID), nil)
	case !IsUUID(scopeID):
		return Parcel{}, errors.NewArgumentError(fmt.Sprintf("scope UUID %q is not valid", scopeID), nil)
	}
	return s.getParcel(ctx, models.Object{"Parcel": name, "RegionID": regionID, "ScopeID": scopeID})
}

func (s *Service) getParcel(ctx context.Context, args models.Object) (Parcel, error) {
	res, err := s.client.CallObject(ctx, MethodGetParcel, true, args, parcelSchema)
	if err != nil {
		return Parcel{}, err
	}
	return parcelFrom(object(res, "Parcel")), nil
}

// GridInfo returns the grid info object, fetching it at most once per cache.
func (s *Service) GridInfo(ctx context.Context) (models.Object, error) {
	return s.gridInfo.Get(ctx, func(ctx context.Context) (models.Object, error) {
		res, err := s.client.CallObject(ctx, MethodGridInfo, true, nil, gridInfoSchema)
		if err != nil {
			return nil, err
		}
		return object(res, "GridInfo"), nil
	})
}

// GridInfoValue returns one grid info entry. The boolean is false when the
// grid does not publish key.
func (s *Service) GridInfoValue(ctx context.Context, key string) (models.Value, bool, error) {
	if !isGraphic(key) {
		return nil, false, errors.NewArgumentError(fmt.Sprintf("grid info key %q is not valid", key), nil)
	}
	info, err := s.GridInfo(ctx)
	if err != nil {
		return nil, false, err
	}
	v, ok := info[key]
	return v, ok, nil
}
