package services

import (
	"errors"
	"fmt"

	"github.com/netoho/hestia-app-staging-sub000/internal/db/models"
	"gorm.io/gorm"
)

// Actor is the normalized view of one policy participant, whatever its
// kind. The services operate on this flat shape plus the per-kind
// descriptor instead of dispatching on four model types.
type Actor struct {
	Kind     models.ActorKind
	ID       string
	PolicyID string

	Common models.ActorCommon

	IsPrimary bool

	GuaranteeMethod      models.GuaranteeMethod
	PropertyDeedNumber   string
	PropertyRegistryInfo string
	PropertyAddress      string

	BankName    string
	BankAccount string
	CLABE       string

	Addresses  []models.Address
	References []models.Reference
	Documents  []models.Document
}

// DisplayName renders the actor's name for receipts and notifications.
func (a *Actor) DisplayName() string {
	return displayNameOf(a.Common)
}

// Foreign reports whether the actor is a non-Mexican national, which
// changes the identification documents they must supply.
func (a *Actor) Foreign() bool {
	return a.Common.Nationality != "" && a.Common.Nationality != "MX"
}

// KindDescriptor carries the per-kind review sections. Field and
// document requirements live in the completeness checker, parameterized
// by the same kind.
type KindDescriptor struct {
	Kind     models.ActorKind
	Sections []models.ActorSection
}

var kindDescriptors = map[models.ActorKind]KindDescriptor{
	models.KindTenant: {
		Kind: models.KindTenant,
		Sections: []models.ActorSection{
			models.SectionPersonalInfo,
			models.SectionAddress,
			models.SectionEmployment,
			models.SectionReferences,
		},
	},
	models.KindLandlord: {
		Kind: models.KindLandlord,
		Sections: []models.ActorSection{
			models.SectionPersonalInfo,
			models.SectionAddress,
			models.SectionBankInfo,
		},
	},
	models.KindJointObligor: {
		Kind: models.KindJointObligor,
		Sections: []models.ActorSection{
			models.SectionPersonalInfo,
			models.SectionAddress,
			models.SectionEmployment,
			models.SectionGuarantee,
		},
	},
	models.KindAval: {
		Kind: models.KindAval,
		Sections: []models.ActorSection{
			models.SectionPersonalInfo,
			models.SectionAddress,
			models.SectionReferences,
			models.SectionPropertyGuarantee,
		},
	},
}

// DescriptorFor returns the review-section descriptor for a kind.
func DescriptorFor(kind models.ActorKind) (KindDescriptor, error) {
	d, ok := kindDescriptors[kind]
	if !ok {
		return KindDescriptor{}, ValidationError("unknown actor kind %q", kind)
	}
	return d, nil
}

// ParseActorKind maps URL path segments to kinds.
func ParseActorKind(s string) (models.ActorKind, error) {
	switch s {
	case "tenant", "TENANT":
		return models.KindTenant, nil
	case "landlord", "LANDLORD":
		return models.KindLandlord, nil
	case "joint-obligor", "jointObligor", "JOINT_OBLIGOR":
		return models.KindJointObligor, nil
	case "aval", "AVAL":
		return models.KindAval, nil
	}
	return "", ValidationError("unknown actor kind %q", s)
}

func preloadActor(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Addresses").Preload("References").Preload("Documents").Preload("Documents.Validation")
}

// LoadActor fetches an actor of any kind with its relations and flattens
// it into the shared view.
func LoadActor(tx *gorm.DB, kind models.ActorKind, id string) (*Actor, error) {
	switch kind {
	case models.KindTenant:
		var t models.Tenant
		if err := preloadActor(tx).First(&t, "id = ?", id).Error; err != nil {
			return nil, notFoundOrDB("tenant", id, err)
		}
		return &Actor{
			Kind: kind, ID: t.ID, PolicyID: t.PolicyID, Common: t.ActorCommon,
			Addresses: t.Addresses, References: t.References, Documents: t.Documents,
		}, nil
	case models.KindLandlord:
		var l models.Landlord
		if err := preloadActor(tx).First(&l, "id = ?", id).Error; err != nil {
			return nil, notFoundOrDB("landlord", id, err)
		}
		return &Actor{
			Kind: kind, ID: l.ID, PolicyID: l.PolicyID, Common: l.ActorCommon,
			IsPrimary: l.IsPrimary,
			BankName:  l.BankName, BankAccount: l.BankAccount, CLABE: l.CLABE,
			Addresses: l.Addresses, References: l.References, Documents: l.Documents,
		}, nil
	case models.KindJointObligor:
		var j models.JointObligor
		if err := preloadActor(tx).First(&j, "id = ?", id).Error; err != nil {
			return nil, notFoundOrDB("joint obligor", id, err)
		}
		return &Actor{
			Kind: kind, ID: j.ID, PolicyID: j.PolicyID, Common: j.ActorCommon,
			GuaranteeMethod:      j.GuaranteeMethod,
			PropertyDeedNumber:   j.PropertyDeedNumber,
			PropertyRegistryInfo: j.PropertyRegistryInfo,
			PropertyAddress:      j.PropertyAddress,
			Addresses:            j.Addresses, References: j.References, Documents: j.Documents,
		}, nil
	case models.KindAval:
		var a models.Aval
		if err := preloadActor(tx).First(&a, "id = ?", id).Error; err != nil {
			return nil, notFoundOrDB("aval", id, err)
		}
		return &Actor{
			Kind: kind, ID: a.ID, PolicyID: a.PolicyID, Common: a.ActorCommon,
			PropertyDeedNumber:   a.PropertyDeedNumber,
			PropertyRegistryInfo: a.PropertyRegistryInfo,
			PropertyAddress:      a.PropertyAddress,
			Addresses:            a.Addresses, References: a.References, Documents: a.Documents,
		}, nil
	}
	return nil, ValidationError("unknown actor kind %q", kind)
}

// LoadActorByToken resolves a self-service token to the actor carrying
// it, searching the four actor tables in turn.
func LoadActorByToken(tx *gorm.DB, token string) (*Actor, error) {
	var t models.Tenant
	if err := preloadActor(tx).First(&t, "access_token = ?", token).Error; err == nil {
		return LoadActor(tx, models.KindTenant, t.ID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, WrapDatabase(err)
	}
	var l models.Landlord
	if err := preloadActor(tx).First(&l, "access_token = ?", token).Error; err == nil {
		return LoadActor(tx, models.KindLandlord, l.ID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, WrapDatabase(err)
	}
	var j models.JointObligor
	if err := preloadActor(tx).First(&j, "access_token = ?", token).Error; err == nil {
		return LoadActor(tx, models.KindJointObligor, j.ID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, WrapDatabase(err)
	}
	var a models.Aval
	if err := preloadActor(tx).First(&a, "access_token = ?", token).Error; err == nil {
		return LoadActor(tx, models.KindAval, a.ID)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, WrapDatabase(err)
	}
	return nil, NewError(ErrInvalidToken, "access token not recognized")
}

// actorModel returns an empty model value and table-agnostic handle for
// kind-generic updates.
func actorModel(kind models.ActorKind) (any, error) {
	switch kind {
	case models.KindTenant:
		return &models.Tenant{}, nil
	case models.KindLandlord:
		return &models.Landlord{}, nil
	case models.KindJointObligor:
		return &models.JointObligor{}, nil
	case models.KindAval:
		return &models.Aval{}, nil
	}
	return nil, ValidationError("unknown actor kind %q", kind)
}

// updateActorColumns applies a column map to the actor row of the given
// kind and id.
func updateActorColumns(tx *gorm.DB, kind models.ActorKind, id string, values map[string]any) error {
	model, err := actorModel(kind)
	if err != nil {
		return err
	}
	if err := tx.Model(model).Where("id = ?", id).Updates(values).Error; err != nil {
		return WrapDatabase(err)
	}
	return nil
}

func notFoundOrDB(entity, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError(entity, id)
	}
	return WrapDatabase(err)
}

func kindLabel(kind models.ActorKind) string {
	switch kind {
	case models.KindTenant:
		return "tenant"
	case models.KindLandlord:
		return "landlord"
	case models.KindJointObligor:
		return "joint obligor"
	case models.KindAval:
		return "aval"
	}
	return fmt.Sprintf("actor(%s)", kind)
}
