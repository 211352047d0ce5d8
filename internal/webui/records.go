package webui

import (
	"github.com/mcncl/gridcall/internal/models"
)

// OnlineStatus reports whether the grid is up and accepting logins.
type OnlineStatus struct {
	Online       bool
	LoginEnabled bool
}

// GridUserInfo is the presence record of a user.
type GridUserInfo struct {
	UUID              string
	Name              string
	FirstName         string
	LastName          string
	HomeUUID          string
	HomeName          string
	CurrentRegionUUID string
	CurrentRegionName string
	Online            bool
	Email             string
	// LastLogin and LastLogout are unix timestamps, nil when the service has
	// no record.
	LastLogin  *int64
	LastLogout *int64
}

// GridRegion describes one region of the grid.
type GridRegion struct {
	UUID           string
	Name           string
	Type           string
	LocX           int64
	LocY           int64
	LocZ           int64
	SizeX          int64
	SizeY          int64
	SizeZ          int64
	ServerIP       string
	ServerURI      string
	ServerHTTPPort int64
	ServerPort     int64
	MapTexture     string
	TerrainTexture string
	Access         int64
	Owner          string
	EstateOwner    string
	EstateID       int64
	Flags          int64
	LastSeen       int64
	SessionID      string
	GenericMap     models.Object
}

// RegionPage is one batch of GetRegions results. Total counts all matching
// regions, not just the ones in Regions.
type RegionPage struct {
	Regions []GridRegion
	Total   int64
}

// GroupRecord describes a group.
type GroupRecord struct {
	GroupID        string
	Name           string
	Charter        string
	Picture        string
	FounderID      string
	MembershipFee  int64
	OpenEnrollment bool
	ShowInList     bool
	AllowPublish   bool
	MaturePublish  bool
	OwnerRoleID    string
}

// Vector3 is a position or direction in region coordinates.
type Vector3 struct {
	X, Y, Z float64
}

// Parcel describes a plot of land inside a region.
type Parcel struct {
	InfoUUID     string
	LocalID      int64
	GlobalID     string
	RegionID     string
	RegionHandle string
	Name         string
	Description  string
	OwnerID      string
	GroupID      string
	AuthBuyerID  string
	SnapshotID   string
	Area         int64
	Maturity     int64
	SalePrice    int64
	AuctionID    int64
	Dwell        int64
	Flags        int64
	Category     int64
	Status       int64
	LandingType  int64
	ClaimDate    int64
	ClaimPrice   int64
	PassHours    float64
	PassPrice    int64
	MediaURL     string
	MusicURL     string
	Private      bool
	FirstParty   bool
	UserLocation Vector3
	UserLookAt   Vector3
	GenericData  models.Object
}

// The helpers below read properties of a response that has already been
// validated, so the type assertions cannot fail for declared properties.

func str(o models.Object, key string) string {
	s, _ := o[key].(string)
	return s
}

func boolean(o models.Object, key string) bool {
	b, _ := o[key].(bool)
	return b
}

func integer(o models.Object, key string) int64 {
	n, _ := models.AsInt64(o[key])
	return n
}

func float(o models.Object, key string) float64 {
	f, _ := models.AsFloat64(o[key])
	return f
}

func object(o models.Object, key string) models.Object {
	obj, _ := models.AsObject(o[key])
	return obj
}

func array(o models.Object, key string) models.Array {
	arr, _ := models.AsArray(o[key])
	return arr
}

// timestamp reads an integer-or-false property.
func timestamp(o models.Object, key string) *int64 {
	n, ok := models.AsInt64(o[key])
	if !ok {
		return nil
	}
	return &n
}

func vector(o models.Object, key string) Vector3 {
	v := array(o, key)
	if len(v) != 3 {
		return Vector3{}
	}
	x, _ := models.AsFloat64(v[0])
	y, _ := models.AsFloat64(v[1])
	z, _ := models.AsFloat64(v[2])
	return Vector3{X: x, Y: y, Z: z}
}

func gridUserInfoFrom(o models.Object) GridUserInfo {
	return GridUserInfo{
		UUID:              str(o, "UUID"),
		Name:              str(o, "Name"),
		FirstName:         str(o, "FirstName"),
		LastName:          str(o, "LastName"),
		HomeUUID:          str(o, "HomeUUID"),
		HomeName:          str(o, "HomeName"),
		CurrentRegionUUID: str(o, "CurrentRegionUUID"),
		CurrentRegionName: str(o, "CurrentRegionName"),
		Online:            boolean(o, "Online"),
		Email:             str(o, "Email"),
		LastLogin:         timestamp(o, "LastLogin"),
		LastLogout:        timestamp(o, "LastLogout"),
	}
}

func gridRegionFrom(o models.Object) GridRegion {
	return GridRegion{
		UUID:           str(o, "uuid"),
		Name:           str(o, "regionName"),
		Type:           str(o, "regionType"),
		LocX:           integer(o, "locX"),
		LocY:           integer(o, "locY"),
		LocZ:           integer(o, "locZ"),
		SizeX:          integer(o, "sizeX"),
		SizeY:          integer(o, "sizeY"),
		SizeZ:          integer(o, "sizeZ"),
		ServerIP:       str(o, "serverIP"),
		ServerURI:      str(o, "serverURI"),
		ServerHTTPPort: integer(o, "serverHttpPort"),
		ServerPort:     integer(o, "serverPort"),
		MapTexture:     str(o, "regionMapTexture"),
		TerrainTexture: str(o, "regionTerrainTexture"),
		Access:         integer(o, "access"),
		Owner:          str(o, "owner_uuid"),
		EstateOwner:    str(o, "EstateOwner"),
		EstateID:       integer(o, "EstateID"),
		Flags:          integer(o, "Flags"),
		LastSeen:       integer(o, "LastSeen"),
		SessionID:      str(o, "SessionID"),
		GenericMap:     object(o, "GenericMap"),
	}
}

func groupRecordFrom(o models.Object) *GroupRecord {
	return &GroupRecord{
		GroupID:        str(o, "GroupID"),
		Name:           str(o, "GroupName"),
		Charter:        str(o, "Charter"),
		Picture:        str(o, "GroupPicture"),
		FounderID:      str(o, "FounderID"),
		MembershipFee:  integer(o, "MembershipFee"),
		OpenEnrollment: boolean(o, "OpenEnrollment"),
		ShowInList:     boolean(o, "ShowInList"),
		AllowPublish:   boolean(o, "AllowPublish"),
		MaturePublish:  boolean(o, "MaturePublish"),
		OwnerRoleID:    str(o, "OwnerRoleID"),
	}
}

func parcelFrom(o models.Object) Parcel {
	return Parcel{
		InfoUUID:     str(o, "InfoUUID"),
		LocalID:      integer(o, "LocalID"),
		GlobalID:     str(o, "GlobalID"),
		RegionID:     str(o, "RegionID"),
		RegionHandle: str(o, "RegionHandle"),
		Name:         str(o, "Name"),
		Description:  str(o, "Description"),
		OwnerID:      str(o, "OwnerID"),
		GroupID:      str(o, "GroupID"),
		AuthBuyerID:  str(o, "AuthBuyerID"),
		SnapshotID:   str(o, "SnapshotID"),
		Area:         integer(o, "Area"),
		Maturity:     integer(o, "Maturity"),
		SalePrice:    integer(o, "SalePrice"),
		AuctionID:    integer(o, "AuctionID"),
		Dwell:        integer(o, "Dwell"),
		Flags:        integer(o, "Flags"),
		Category:     integer(o, "Category"),
		Status:       integer(o, "Status"),
		LandingType:  integer(o, "LandingType"),
		ClaimDate:    integer(o, "ClaimDate"),
		ClaimPrice:   integer(o, "ClaimPrice"),
		PassHours:    float(o, "PassHours"),
		PassPrice:    integer(o, "PassPrice"),
		MediaURL:     str(o, "MediaURL"),
		MusicURL:     str(o, "MusicURL"),
		Private:      boolean(o, "Private"),
		FirstParty:   boolean(o, "FirstParty"),
		UserLocation: vector(o, "UserLocation"),
		UserLookAt:   vector(o, "UserLookAt"),
		GenericData:  object(o, "GenericData"),
	}
}
