package aeat_test

const registrationOK = `<?xml version="1.0" encoding="UTF-8"?>
<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">
  <env:Body>
    <tikR:RespuestaRegFactuSistemaFacturacion xmlns:tikR="https://www2.agenciatributaria.gob.es/static_files/common/internet/dep/aplicaciones/es/aeat/tike/cont/ws/RespuestaSuministro.xsd" xmlns:tik="https://www2.agenciatributaria.gob.es/static_files/common/internet/dep/aplicaciones/es/aeat/tike/cont/ws/SuministroInformacion.xsd">
      <tikR:CSV>A-YDSW8NLFLANWPM</tikR:CSV>
      <tikR:Cabecera>
        <tik:ObligadoEmision>
          <tik:NombreRazon>Empresa Ejemplo SL</tik:NombreRazon>
          <tik:NIF>B12345678</tik:NIF>
        </tik:ObligadoEmision>
      </tikR:Cabecera>
      <tikR:TiempoEsperaEnvio>60</tikR:TiempoEsperaEnvio>
      <tikR:EstadoEnvio>Correcto</tikR:EstadoEnvio>
      <tikR:RespuestaLinea>
        <tikR:IDFactura>
          <tik:IDEmisorFactura>B12345678</tik:IDEmisorFactura>
          <tik:NumSerieFactura>FA2025/001</tik:NumSerieFactura>
          <tik:FechaExpedicionFactura>01-01-2025</tik:FechaExpedicionFactura>
        </tikR:IDFactura>
        <tikR:Operacion>
          <tik:TipoOperacion>Alta</tik:TipoOperacion>
        </tikR:Operacion>
        <tikR:EstadoRegistro>Correcto</tikR:EstadoRegistro>
      </tikR:RespuestaLinea>
    </tikR:RespuestaRegFactuSistemaFacturacion>
  </env:Body>
</env:Envelope>`

const registrationRejected = `<?xml version="1.0" encoding="UTF-8"?>
<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">
  <env:Body>
    <tikR:RespuestaRegFactuSistemaFacturacion xmlns:tikR="urn:r" xmlns:tik="urn:t">
      <tikR:EstadoEnvio>Incorrecto</tikR:EstadoEnvio>
      <tikR:RespuestaLinea>
        <tikR:IDFactura>
          <tik:IDEmisorFacturaAnulada>B12345678</tik:IDEmisorFacturaAnulada>
          <tik:NumSerieFacturaAnulada>FA2025/001</tik:NumSerieFacturaAnulada>
          <tik:FechaExpedicionFacturaAnulada>01-01-2025</tik:FechaExpedicionFacturaAnulada>
        </tikR:IDFactura>
        <tikR:Operacion>
          <tik:TipoOperacion>Anulacion</tik:TipoOperacion>
        </tikR:Operacion>
        <tikR:EstadoRegistro>Incorrecto</tikR:EstadoRegistro>
        <tikR:CodigoErrorRegistro>3000</tikR:CodigoErrorRegistro>
        <tikR:DescripcionErrorRegistro>Registro de facturación duplicado.</tikR:DescripcionErrorRegistro>
        <tikR:RegistroDuplicado>
          <tik:EstadoRegistroDuplicado>Correcta</tik:EstadoRegistroDuplicado>
        </tikR:RegistroDuplicado>
      </tikR:RespuestaLinea>
    </tikR:RespuestaRegFactuSistemaFacturacion>
  </env:Body>
</env:Envelope>`

const queryWithData = `<?xml version="1.0" encoding="UTF-8"?>
<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">
  <env:Body>
    <tikLRRC:RespuestaConsultaFactuSistemaFacturacion xmlns:tikLRRC="urn:c" xmlns:tik="urn:t">
      <tikLRRC:Cabecera>
        <tik:IDVersion>1.0</tik:IDVersion>
      </tikLRRC:Cabecera>
      <tikLRRC:PeriodoImputacion>
        <tik:Ejercicio>2025</tik:Ejercicio>
        <tik:Periodo>01</tik:Periodo>
      </tikLRRC:PeriodoImputacion>
      <tikLRRC:IndicadorPaginacion>S</tikLRRC:IndicadorPaginacion>
      <tikLRRC:ResultadoConsulta>ConDatos</tikLRRC:ResultadoConsulta>
      <tikLRRC:RegistroRespuestaConsultaFactuSistemaFacturacion>
        <tikLRRC:IDFactura>
          <tik:IDEmisorFactura>B12345678</tik:IDEmisorFactura>
          <tik:NumSerieFactura>FA2025/001</tik:NumSerieFactura>
          <tik:FechaExpedicionFactura>01-01-2025</tik:FechaExpedicionFactura>
        </tikLRRC:IDFactura>
        <tikLRRC:DatosRegistroFacturacion>
          <tik:TipoFactura>F1</tik:TipoFactura>
          <tik:ImporteTotal>121</tik:ImporteTotal>
          <tik:Huella>ABCDEF</tik:Huella>
        </tikLRRC:DatosRegistroFacturacion>
        <tikLRRC:EstadoRegistro>
          <tikLRRC:EstadoRegistro>Correcto</tikLRRC:EstadoRegistro>
        </tikLRRC:EstadoRegistro>
      </tikLRRC:RegistroRespuestaConsultaFactuSistemaFacturacion>
      <tikLRRC:ClavePaginacion>
        <tik:IDEmisorFactura>B12345678</tik:IDEmisorFactura>
        <tik:NumSerieFactura>FA2025/001</tik:NumSerieFactura>
        <tik:FechaExpedicionFactura>01-01-2025</tik:FechaExpedicionFactura>
      </tikLRRC:ClavePaginacion>
    </tikLRRC:RespuestaConsultaFactuSistemaFacturacion>
  </env:Body>
</env:Envelope>`

const soapFaultResponse = `<?xml version="1.0" encoding="UTF-8"?>
<env:Envelope xmlns:env="http://schemas.xmlsoap.org/soap/envelope/">
  <env:Body>
    <env:Fault>
      <faultcode>env:Client</faultcode>
      <faultstring>Codigo[4102].El XML no cumple el esquema.</faultstring>
    </env:Fault>
  </env:Body>
</env:Envelope>`
