package query

// Read models are defined in the readmodel package and shared with the projector.
import "github.com/viepratiqueservice-arch/Visela/internal/readmodel"

type ProductReadModel = readmodel.ProductReadModel
type CategoryReadModel = readmodel.CategoryReadModel
type OrderItemReadModel = readmodel.OrderItemReadModel
type OrderReadModel = readmodel.OrderReadModel
type UserReadModel = readmodel.UserReadModel
type AddressReadModel = readmodel.AddressReadModel
type ReloadReadModel = readmodel.ReloadReadModel
