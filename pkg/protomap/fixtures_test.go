package protomap

import (
	"github.com/lk2023060901/protomap-go/pkg/protomap/converter"
	"github.com/lk2023060901/protomap-go/pkg/protomap/wire"
)

type testAddress struct{ Object }

type testPerson struct{ Object }

type testCompany struct{ Object }

type testOrder struct{ Object }

type testToken struct{ Object }

type testEmployee struct{ Object }

type testDevice struct{ Object }

var (
	addressDef = MustDefine("Address", func() *testAddress { return new(testAddress) },
		Field("city", 1, WithType(wire.String)),
		Field("zip", 2, WithType(wire.Uint32)),
	)

	personDef = MustDefine("Person", func() *testPerson { return new(testPerson) },
		Field("name", 1, WithType(wire.String), Required()),
		Field("age", 2, WithType(wire.Uint32)),
		Field("avatar", 3),
		Field("vip", 4, WithType(wire.Bool)),
		Field("nick", 5, WithConverter(converter.String), WithDefault("empty")),
		Field("tags", 6, WithType(wire.String), Repeated()),
		Field("home", 7, WithNested(addressDef)),
		Field("aliases", 8, WithConverter(converter.String), Repeated()),
		Field("blobs", 9, Repeated()),
		Field("places", 10, WithNested(addressDef), Repeated()),
	)

	companyDef = MustDefine("Company", func() *testCompany { return new(testCompany) },
		Field("branches", 1, WithNested(addressDef), Repeated()),
		Field("hq", 2, WithNested(addressDef)),
	)

	orderDef = MustDefine("Order", func() *testOrder { return new(testOrder) },
		Field("address", 1, WithNested(addressDef), Required()),
	)

	tokenDef = MustDefine("Token", func() *testToken { return new(testToken) },
		Field("token", 1, WithConverter(converter.String), Required()),
	)

	deviceDef = MustDefine("Device", func() *testDevice { return new(testDevice) },
		Field("id", 1, WithConverter(converter.UUID)),
		Field("label", 2, WithType(wire.String)),
	)

	employeeDef = MustExtend(personDef, "Employee", func() *testEmployee { return new(testEmployee) },
		Field("age", 2, WithType(wire.Uint64)),
		Field("company", 20, WithType(wire.String)),
	)
)

func newPerson() *testPerson {
	return personDef.New().(*testPerson)
}

func newAddress(city string) *testAddress {
	a := addressDef.New().(*testAddress)
	if city != "" {
		if err := a.Set("city", Scalar(city)); err != nil {
			panic(err)
		}
	}
	return a
}
